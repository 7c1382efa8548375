package section

import "io"

const shiftBlockSize = 8192

// shiftLeft moves the bytes from the cursor to the end of the section
// towards the start by length bytes, capping length at the cursor. The
// cursor is restored before returning. The section keeps its size; the
// caller truncates the now-duplicated tail if needed.
func shiftLeft(data Data, length uint32) error {
	cursor, err := data.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if int64(length) > cursor {
		length = uint32(cursor)
	}

	var buf [shiftBlockSize]byte
	destination := cursor - int64(length)
	source := cursor
	for {
		if _, err := data.Seek(source, io.SeekStart); err != nil {
			return err
		}
		n, err := data.Read(buf[:])
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 {
			break
		}
		source += int64(n)
		if _, err := data.Seek(destination, io.SeekStart); err != nil {
			return err
		}
		if _, err := data.Write(buf[:n]); err != nil {
			return err
		}
		destination += int64(n)
	}
	_, err = data.Seek(cursor, io.SeekStart)

	return err
}

// shiftRight moves the bytes from the cursor to the end of the section
// towards the end by length bytes, growing the section. Blocks are copied
// back-to-front so the source is never overwritten before it is read. The
// cursor is restored before returning.
func shiftRight(data Data, size int64, length uint32) error {
	cursor, err := data.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	var buf [shiftBlockSize]byte
	source := size
	destination := source + int64(length)
	for source > cursor {
		next := min(int64(shiftBlockSize), source-cursor)
		if _, err := data.Seek(source-next, io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(data, buf[:next]); err != nil {
			return err
		}
		if _, err := data.Seek(destination-next, io.SeekStart); err != nil {
			return err
		}
		if _, err := data.Write(buf[:next]); err != nil {
			return err
		}
		source -= next
		destination -= next
	}
	_, err = data.Seek(cursor, io.SeekStart)

	return err
}
