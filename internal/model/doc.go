package model

// Package model defines domain data structures used across the app: remote
// video metadata snapshots, download progress events, MP3 tag sets, and the
// attempt state enum driven by the retry controller. Structures carry no
// behavior beyond formatting helpers and explicit state predicates.
