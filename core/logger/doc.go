// Package logger is a standardized event logging framework for the shell.
//
// Events are written as newline delimited JSON so they can be tailed,
// grepped and summarized with the events report command.
package logger
