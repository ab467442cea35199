// Package password hashes and verifies user-table passwords with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes produced with weaker parameters so
// the engine can re-hash after the next verified login. [Inspect] reads the
// parameters of a stored hash; anything that does not parse wraps
// [ErrMalformedHash].
//
// This package never stores passwords and never imports other goAdmin
// packages. Length limits are the only policy it applies.
package password
