// Package builtin provides the value-generator functions callable from
// feature expressions: uuid(), now(), timestamp(), timestampMs(), date(),
// random(min, max), randomString(length), base64(value),
// base64Decode(value) and env(name). Custom functions can be added through
// Registry.Register.
package builtin
