// Package config provides layered configuration for dropin.
//
// Values come from three layers, lowest priority first:
//
//   - built-in defaults
//   - the configuration file (TOML or YAML, chosen by extension)
//   - DROPIN_* environment variables
//
// Runtime overrides set with Set sit on top. Keys are dotted paths such as
// "dropIntoEditor.showDropSelector". Known keys are type checked; unknown
// keys are kept so plugins can read their own settings.
//
// Observers registered with Subscribe or SubscribePath are notified of
// every changed key after a reload, followed by one reload event. Watch
// reloads the file whenever it changes on disk.
package config
