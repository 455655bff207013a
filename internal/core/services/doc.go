// Package services implements the driving port interfaces.
// Services contain the core pipeline logic (select, chunk, summarise,
// aggregate, retrieve, answer) and orchestrate calls to driven ports.
package services
