// Package app wires the equation compiler into a runnable application: it
// builds the logger, discovers equation files, loads external bindings,
// compiles and finalizes the merged model, and renders the model report.
package app
