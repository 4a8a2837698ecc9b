// Package archive implements the encrypted migration archive.
//
// An archive is a fixed header followed by the AES-256-GCM encryption of a
// gzip-compressed tar stream, with the 16-byte authentication tag as the
// last bytes of the file:
//
//	"OCM1" | version | algorithm | len(salt) | len(iv) | salt | iv | ciphertext | tag
//
// The key is derived from the password and salt with scrypt. Both Create and
// Restore stream: the payload is never held in memory, and on restore the
// trailing tag is recovered with a TagSplitter, which lags the input by the
// tag length. Restore only reports success after the tag has been verified.
//
// The first container entry is manifest.json (see package manifest). The
// remaining entries are directory trees rooted at each source's base name.
// On restore, configuration roots (.openclaw and the legacy .clawdbot) map
// to .openclaw, and every other root maps into .openclaw/workspace. Entries
// that would land outside the target directory are skipped.
package archive
