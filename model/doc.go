// Package model defines the provider-neutral completion interface consumed
// by the conversation engine, the title synthesizer and the memory curator.
// Concrete adapters live in sub-packages (openrouter, anthropic) so calling
// code never branches per vendor. MockModel supports deterministic tests.
package model
