package audio

import (
	"strings"
	"testing"
)

func TestSSMLPayload_EscapesAnswerText(t *testing.T) {
	got := ssmlPayload(`Expect 5 < 10 mm of rain & winds > 20 km/h`)

	if strings.Contains(got, "rain &amp; winds") == false {
		t.Fatalf("ampersand not escaped: %s", got)
	}
	if strings.Contains(got, "5 &lt; 10") == false || strings.Contains(got, "&gt; 20") == false {
		t.Fatalf("angle brackets not escaped: %s", got)
	}
	// the SSML envelope itself stays intact
	if !strings.HasPrefix(got, `<speak version='1.0' xml:lang='en-US'><voice name='en-US-JennyNeural'>`) ||
		!strings.HasSuffix(got, `</voice></speak>`) {
		t.Fatalf("envelope malformed: %s", got)
	}
}

func TestSSMLPayload_PlainTextUnchanged(t *testing.T) {
	got := ssmlPayload("Sunny and 31 degrees in Dhaka today.")
	if !strings.Contains(got, ">Sunny and 31 degrees in Dhaka today.<") {
		t.Fatalf("plain text altered: %s", got)
	}
}
