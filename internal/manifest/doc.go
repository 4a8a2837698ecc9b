// Package manifest defines the metadata record embedded as the first entry
// of every archive, and the Host value that supplies the facts it records.
//
// The manifest stores the exporting machine's home directory and the
// original workspace path. After a restore, the heal package compares them
// with the importing Host to decide which path strings to rewrite.
//
//	{
//	  "id": "6f1c...",
//	  "version": 1,
//	  "env": {"runtime": "go1.23.7", "platform": "darwin", "arch": "arm64"},
//	  "workspaceOriginal": "/Users/alice/clawd",
//	  "home": "/Users/alice",
//	  "createdAt": "2026-01-02T03:04:05Z"
//	}
package manifest
