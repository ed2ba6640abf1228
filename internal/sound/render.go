package sound

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

// SampleRate of rendered clips.
const SampleRate = 22050

const (
	attack    = 10 * time.Millisecond
	decayGoal = 0.01
)

// Clip is a rendered WAV file.
type Clip struct {
	Name string
	Data []byte
}

// Render mixes voices at volume into a 16-bit mono WAV clip. Each voice ramps
// linearly to its peak over 10ms, then decays exponentially to 0.01 at the
// end of its duration.
func Render(name string, voices []Voice, volume float64) Clip {
	var length time.Duration
	for _, v := range voices {
		if end := v.Offset + v.Duration; end > length {
			length = end
		}
	}

	n := int(length.Seconds() * SampleRate)
	mix := make([]float64, n)
	for _, v := range voices {
		addVoice(mix, v, clamp01(volume)*v.Gain)
	}

	return Clip{Name: name, Data: encodeWAV(mix)}
}

func addVoice(mix []float64, v Voice, peak float64) {
	if peak <= 0 || v.Duration <= 0 {
		return
	}
	start := int(v.Offset.Seconds() * SampleRate)
	count := int(v.Duration.Seconds() * SampleRate)
	dur := v.Duration.Seconds()
	att := attack.Seconds()

	for i := 0; i < count && start+i < len(mix); i++ {
		t := float64(i) / SampleRate
		mix[start+i] += envelope(t, att, dur, peak) * oscillate(v.Wave, v.Freq, t)
	}
}

func envelope(t, att, dur, peak float64) float64 {
	if t < att {
		return peak * t / att
	}
	if dur <= att {
		return peak
	}
	// exponential ramp from peak at att to decayGoal at dur
	return peak * math.Pow(decayGoal/peak, (t-att)/(dur-att))
}

func oscillate(w Wave, freq, t float64) float64 {
	phase := freq * t
	switch w {
	case Triangle:
		frac := phase - math.Floor(phase)
		return 4*math.Abs(frac-0.5) - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func encodeWAV(samples []float64) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate*channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)

	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.Write(&buf, binary.LittleEndian, int16(s*math.MaxInt16))
	}
	return buf.Bytes()
}
