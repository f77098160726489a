package resp

// Command builds the array of bulk strings a client sends for
// name and its arguments.
func Command(name string, args ...string) Array {
	cmd := make(Array, 0, len(args)+1)
	cmd = append(cmd, BulkString(name))
	for _, arg := range args {
		cmd = append(cmd, BulkString(arg))
	}
	return cmd
}

// EncodeCommand returns the wire form of Command(name, args...).
// Bulk strings accept any bytes, so it cannot fail.
func EncodeCommand(name string, args ...string) []byte {
	dst := appendHeader(nil, TypeArray, len(args)+1)
	dst = appendBulk(dst, []byte(name))
	for _, arg := range args {
		dst = appendBulk(dst, []byte(arg))
	}
	return dst
}
