// Package app contains the core application logic. It wires configuration,
// tool providers, locators and the build pipeline together and runs one
// command, decoupled from any specific entrypoint like a CLI.
package app
