/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

/*
Package interpreter runs ops.Operation values against a provider client.

Three interpreters share one execution core and differ only in how the caller
waits for the result:

  - Blocking: Execute runs the operation on the calling goroutine and issues
    batch chunks one after another.
  - Async: Submit starts the operation on its own goroutine and returns a
    Future; batch chunks fan out up to the configured limit.
  - Deferred: Suspend returns an Effect that does nothing until Run is
    called, and can be composed with Bind and MapEffect before that.

For the same operation and store contents every interpreter returns the same
values and the same error classification. Provider errors never cross the
interpreter boundary untranslated: callers see the errors package taxonomy or
a context error.
*/
package interpreter
