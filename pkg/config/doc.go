// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Every package in this module that needs tunables declares its own Config
// struct with `env:` tags; process wiring loads them once at startup with
// config.MustLoad.
package config
