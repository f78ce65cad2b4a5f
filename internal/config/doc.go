// Package config defines the format-agnostic build configuration and the
// Loader interface that format-specific packages, such as the HCL loader,
// implement. The model is plain data: turning it into spaces, locators and
// tool providers is the job of the app package.
package config
