// Package common provides the core data structures shared by the file server,
// the client driver and the load harness. It defines the protocol types,
// the configuration structures and the logger setup used by the other packages.
//
// Key Components:
//
//   - Request: One command sent by a client (List, Get, Upload, Delete). Factory
//     functions create well formed requests for every verb.
//
//   - Response: The single answer to a request with status OK or ERROR. The factory
//     functions guarantee that OK responses never carry an error description and that
//     ERROR responses never carry a payload.
//
//   - Outcome: The immutable result of one client operation (status, file, bytes moved,
//     elapsed time, error), consumed by the load harness for aggregation.
//
//   - ServerConfig / ClientConfig: Typed configuration with String() pretty printers
//     for startup logging.
//
//   - Logger: Custom formatting for dragonboats logger facade, used by every package
//     through logger.GetLogger(name).
//
//   - Errors: The error classes ErrTransport, ErrProtocol and ErrLocalIO that concrete
//     errors wrap so they can be classified with errors.Is.
package common
