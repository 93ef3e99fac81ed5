// Package codec converts between the protocol types of the common package and
// their wire form.
//
// Requests are single lines of text. The verb is the first whitespace separated
// token and is matched case-insensitively, the remainder is the argument:
//
//	LIST
//	GET <name>
//	UPLOAD <name>||<base64 payload>
//	DELETE <name>
//
// Responses are JSON objects with a status ("OK" or "ERROR") and a data member
// whose shape depends on the request: a list of names for LIST, an object with
// filename and base64 file content for GET, an acknowledgement string for UPLOAD
// and DELETE and the error description for every ERROR response.
//
// The base64 alphabet never produces "\r\n\r\n", so encoded payloads cannot collide
// with the frame terminator appended by the transport. File names are validated with
// ValidateName on both sides to keep that guarantee and to keep names flat.
package codec
