package midi

import "fmt"

const notesInOctave = 12

var sharpNames = [notesInOctave]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// NoteName returns a human-readable name like "A4" or "C#-1" for a MIDI
// note number. Middle C (60) is C4.
func NoteName(note uint8) string {
	octave := int(note)/notesInOctave - 1
	return fmt.Sprintf("%s%d", sharpNames[note%notesInOctave], octave)
}
