package main

// Manual smoke test for the audio output path: queues one bar of clicks
// straight on the hardware clock, waits for them to sound and exits.
// No engine, no supervisor; if this is silent, the problem is below them.

import (
	"fmt"
	"os"
	"time"

	"github.com/robmorgan/pulse/audio"
)

const (
	spacing   = 0.5 // 120 bpm
	numClicks = 4
)

func main() {
	clock, err := audio.NewBeepClock(audio.DefaultSampleRate)
	if err != nil {
		fmt.Println("could not open audio output:", err)
		os.Exit(1)
	}
	defer clock.Close()

	start := clock.Now() + 0.1
	for i := 0; i < numClicks; i++ {
		freq, gain := 660.0, 0.8
		if i == 0 {
			freq, gain = 880.0, 1.0
		}
		at := start + float64(i)*spacing
		clock.PlayTone(audio.Tone{At: at, Freq: freq, Gain: gain, Duration: 0.05})
		fmt.Printf("click %d queued at %.2fs\n", i+1, at)
	}

	// Let the last click ring out before the speaker goes away.
	end := start + numClicks*spacing
	time.Sleep(time.Duration((end-clock.Now())*float64(time.Second)) + 200*time.Millisecond)
	fmt.Println("done")
}
