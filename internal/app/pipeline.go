package app

import (
	"log"
	"time"
)

// runPipeline reads frames until stopCh closes.
//
// The loop starts at IdleFPS and only composes the overlay. Motion switches
// it to ActiveFPS, where every frame also goes through hand detection and
// the gesture session. After IdleTimeout without motion it drops back.
// Session counters are flushed to the store every FlushInterval.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	active := false
	lastMotion := time.Now()

	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	flush := time.NewTicker(a.config.FlushInterval)
	defer flush.Stop()

	for {
		select {
		case <-stopCh:
			return

		case <-flush.C:
			if err := a.FlushStats(); err != nil {
				log.Printf("Error flushing session stats: %v", err)
			}

		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			if a.motion.Detect(frame).Detected {
				lastMotion = now
				if !active {
					active = true
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / ActiveFPS)
					log.Println("Switched to active mode")
				}
			} else if active && now.Sub(lastMotion) > IdleTimeout {
				active = false
				a.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / IdleFPS)
				log.Println("Switched to idle mode")
			}

			if active {
				if _, err := a.ProcessFrame(frame, now); err != nil {
					log.Printf("Error processing frame: %v", err)
				}
			} else {
				a.compose(frame)
			}
			frame.Close()
		}
	}
}
