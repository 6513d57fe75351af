// Package wire defines the nested attribute format used by vendor commands.
//
// Messages are sequences of netlink attributes: a 16-bit length, a 16-bit
// type, the payload, and padding to a 4-byte boundary. Nested attributes
// carry the NLA_F_NESTED flag and contain further attributes.
//
// # Attribute Trees
//
// Outgoing messages are built as trees of Attr values. A leaf is a scalar
// of 1, 2, 4 or 8 bytes, a zero-length flag, or a raw byte string. Inner
// nodes hold an ordered list of children.
//
// # Tables
//
// Incoming buffers are decoded into a Table indexed by attribute id.
// Every record is bounds-checked before it is exposed; nested payloads
// are only parsed when a caller descends into them.
//
// # Absent vs False
//
// Flags are encoded by presence. An absent flag reads as false, and
// absent optional scalars read as their declared default.
package wire
