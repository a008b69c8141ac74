// Package confloader loads configuration from layered sources with koanf.
//
// Later layers win:
//
//  1. values already set in the target struct (defaults)
//  2. the YAML file
//  3. environment variables, MEMKV_SECTION_KEY for the server and
//     MEMKV_CLI_KEY for memkv-cli; blank values are ignored
//  4. command-line flags keyed by dotted path
//
// Watcher reports changes to the configuration file so the server can
// apply the settings that may change at runtime.
package confloader
