// Package hcl provides the concrete HCL implementation of config.Loader.
// It is responsible for file discovery, HCL decoding into the block schema,
// expression evaluation, and translation into the config model.
package hcl
