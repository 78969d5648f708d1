// Package services implements the driving port interfaces.
// Services contain the core logic (embedding orchestration, index builds,
// retrieval and ranking) and reach storage and providers only through
// driven ports.
package services
