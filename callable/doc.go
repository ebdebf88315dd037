// Package callable defines the callable abstraction the chain engine invokes:
// named units of work with a mandatory synchronous form and optional
// asynchronous, streaming, and batched forms, advertised through capability
// interfaces that the executor probes at dispatch time.
//
// # Core Concepts
//
//  1. Callable: the base interface. Name() identifies the callable inside a
//     Registry, Invoke() runs it synchronously.
//
//  2. Capabilities: AsyncInvoker, StreamInvoker, and BatchInvoker extend
//     Callable. A callable implements whichever subset it genuinely supports;
//     Supports() and Modes() probe them without invoking anything.
//
//  3. Registry: an explicit, injected name->Callable map. There is no global
//     registry; each process (or test) builds its own and passes it to the
//     chains that need it. Lookup is safe for concurrent use.
//
//  4. Streams: streaming callables produce a one-shot Stream of string
//     fragments whose concatenation equals the synchronous result.
//
// Plain functions can be adapted with Func, AsyncFunc, StreamFunc, and
// BatchFunc rather than writing a struct per callable.
package callable
