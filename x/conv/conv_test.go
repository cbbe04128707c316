package conv

import "testing"

func TestItoa(t *testing.T) {
	var buf [20]byte
	cases := map[int64]string{
		0:          "0",
		7:          "7",
		42:         "42",
		-9:         "-9",
		1234567890: "1234567890",
	}
	for n, want := range cases {
		if got := string(Itoa(buf[:], n)); got != want {
			t.Errorf("Itoa(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestAppendUint(t *testing.T) {
	got := AppendUint([]byte("n="), 4294967295)
	if string(got) != "n=4294967295" {
		t.Fatalf("AppendUint = %q", got)
	}
}

func TestU32Hex(t *testing.T) {
	var buf [8]byte
	if got := string(U32Hex(buf[:], 0xDEADBEEF)); got != "DEADBEEF" {
		t.Fatalf("U32Hex = %q", got)
	}
	if got := string(U32Hex(buf[:], 0x1A)); got != "0000001A" {
		t.Fatalf("U32Hex = %q", got)
	}
}

func TestAppendIPv4(t *testing.T) {
	if got := string(AppendIPv4(nil, [4]byte{192, 168, 1, 23})); got != "192.168.1.23" {
		t.Fatalf("AppendIPv4 = %q", got)
	}
	if got := string(AppendIPv4(nil, [4]byte{0, 0, 0, 0})); got != "0.0.0.0" {
		t.Fatalf("AppendIPv4 = %q", got)
	}
}

func TestAppendMAC(t *testing.T) {
	mac := [6]byte{0x08, 0x00, 0x28, 0x01, 0x79, 0xB7}
	if got := string(AppendMAC(nil, mac)); got != "08:00:28:01:79:b7" {
		t.Fatalf("AppendMAC = %q", got)
	}
}
