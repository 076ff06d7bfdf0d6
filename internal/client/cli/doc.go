// Package cli is the interactive terminal front end. It is a small view
// state machine (welcome, login, register, dashboard) driven by the
// results of the account service, plus a message channel the REPL prints
// after every command.
//
// Commands
//
//	Logged out:
//	  - help           show available commands
//	  - register       create an account
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help           show available commands
//	  - balance        show the current bonus balance
//	  - logout         log out
//	  - exit | quit    leave the program
package cli
