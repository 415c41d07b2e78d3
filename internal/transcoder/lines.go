package transcoder

import "bytes"

// maxLineSize bounds a single diagnostic line; ffmpeg never gets close.
const maxLineSize = 256 * 1024

// scanLines is a bufio.SplitFunc that ends a line at '\n', '\r' or "\r\n".
// ffmpeg rewrites its progress line in place with '\r', so the stock
// bufio.ScanLines would hold progress back until the process exits.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
			} else if !atEOF {
				// A '\n' may follow in the next read.
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
