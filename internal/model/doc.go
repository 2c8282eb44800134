// Package model holds the value types shared by every engine component and
// the content-addressing rules that give entries their identity.
//
// model imports nothing internal except errs. Key constraints:
//   - Entries are hashed over canonical JSON (sorted keys, NFC strings, no floats)
//   - Hashes use domain separation so two entry kinds never collide
//   - All JSON tags use snake_case
//   - Timestamps are unix milliseconds; ordering ties break on hash
package model
