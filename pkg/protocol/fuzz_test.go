package protocol

import "testing"

func FuzzDecode(f *testing.F) {
	f.Add("057")
	f.Add("01")
	f.Add("3305\x0001")
	f.Add("33")
	f.Add(`30{"board":"a","thread":1}`)
	f.Add("3333333304")
	f.Fuzz(func(t *testing.T, raw string) {
		frames, err := DefaultCodec.Decode(raw)
		if err != nil {
			return
		}
		// Every decoded frame must survive a re-encode.
		for _, fr := range frames {
			again, err := DecodeFrame(fr.Encode())
			if err != nil {
				t.Fatalf("re-decoding %q: %v", fr.Encode(), err)
			}
			if again.Type != fr.Type || string(again.Payload) != string(fr.Payload) {
				t.Fatalf("re-decoded %v/%s, want %v/%s", again.Type, again.Payload, fr.Type, fr.Payload)
			}
		}
	})
}
