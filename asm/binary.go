package asm

import "os"

// WriteBinaries writes every queued .STORE region to disk as raw
// image bytes. When .LOAD was seen, each file starts with the
// little-endian load address of its region.
func (r *Result) WriteBinaries() error {
	for _, s := range r.Stores {
		f, err := os.Create(s.Filename)
		if err != nil {
			return err
		}
		if r.WriteLA {
			la := []byte{byte(s.Start), byte(s.Start >> 8)}
			if _, err := f.Write(la); err != nil {
				f.Close()
				return err
			}
		}
		if _, err := f.Write(r.Image[s.Start : s.Start+s.Length]); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
