package platform

// Package platform contains OS and filesystem glue: output filename
// sanitation and uniquing, produced-file lookup in the destination
// directory, temp-file cleanup, and hosting-platform URL validation.
