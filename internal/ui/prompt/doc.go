// Package prompt provides the interactive prompts forgectl falls back to
// when a required argument is missing and a terminal is attached.
//
// Available prompts:
//   - [Confirm]: yes/no confirmation
//   - [TextInput]: single-line text input with validation
//   - [Select]: single selection from a filterable list
//
// Callers check [Interactive] first and fail with a usage error otherwise.
package prompt
