// Package llm provides a provider-neutral abstraction layer for language
// model APIs.
//
// This package defines the common types, interfaces, and utilities that let
// chains invoke multiple model providers (Anthropic, OpenAI, Ollama) without
// being coupled to any specific provider's SDK.
//
// # Core Concepts
//
//  1. Model Interface: Predict() for complete responses, Stream() for
//     incremental ones. Implementations handle provider-specific details.
//
//  2. Requests: the Request type carries the model name, prompt messages,
//     system prompt, and sampling parameters in a provider-neutral form.
//
//  3. Middleware: the Middleware interface and WithRetry allow adding
//     cross-cutting concerns like logging and retry without modifying
//     provider implementations.
//
//  4. Errors: the Error type provides provider-neutral error handling with
//     support for rate limits and retryable classification.
//
//  5. Chain integration: NewCallable adapts a Model into a callable the
//     chain engine can invoke synchronously, streamed, or batched.
//
// To add a new provider, implement the Model interface, translate between
// provider-specific types and this package's types, and map provider errors
// onto llm.Error values.
package llm
