package cas

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"
)

func TestHashKnownValues(t *testing.T) {
	// empty input digests are fixed by each algorithm's definition
	if got := Hash(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Hash(nil) = %s", got)
	}
	if got := Blake3Hash(nil); got != "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262" {
		t.Errorf("Blake3Hash(nil) = %s", got)
	}
}

func TestSumMatchesSumReader(t *testing.T) {
	data := bytes.Repeat([]byte("page"), 1024)

	want := Sum(data)
	got, err := SumReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("SumReader() error = %v", err)
	}
	if *got != *want {
		t.Errorf("SumReader() = %+v, want %+v", got, want)
	}
	if got.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", got.Size, len(data))
	}
	if len(got.Short()) != 16 || got.Short() != got.BLAKE3[:16] {
		t.Errorf("Short() = %q", got.Short())
	}
}

func TestSumReaderError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := SumReader(iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Errorf("SumReader() error = %v, want boom", err)
	}
}

func TestDifferentContentDiffers(t *testing.T) {
	a, b := Sum([]byte("a")), Sum([]byte("b"))
	if a.BLAKE3 == b.BLAKE3 || a.SHA256 == b.SHA256 {
		t.Error("distinct inputs produced equal digests")
	}
}
