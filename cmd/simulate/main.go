// Command simulate hammers the public booking API with concurrent requests.
// Its main purpose is demonstrating that a slot's capacity is never exceeded
// when many clients race for it: the surplus requests must come back 409.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type SimConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	DaysAhead  int
}

type slotRef struct {
	ServiceID string
	Date      string
	StartTime string
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Simulator struct {
	config  SimConfig
	slots   []slotRef
	client  *http.Client
	booking OperationMetrics
	reads   OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 10),
		DaysAhead:  getInt("SIM_DAYS_AHEAD", 7),
	}
	if cfg.Workers <= 0 || cfg.Duration <= 0 {
		log.Fatal("SIM_WORKERS and SIM_DURATION must be > 0")
	}

	log.Printf("config: base_url=%s duration=%s workers=%d days_ahead=%d",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.DaysAhead)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sim.loadSlots(ctx); err != nil {
		cancel()
		log.Fatalf("load slots: %v", err)
	}
	cancel()
	log.Printf("loaded %d open slots", len(sim.slots))

	sim.Run()
	sim.PrintReport()
}

type serviceItem struct {
	ID string `json:"id"`
}

type availabilityDay struct {
	Slots []struct {
		StartTime string `json:"startTime"`
		Available bool   `json:"available"`
	} `json:"slots"`
}

// loadSlots walks the availability of the next few days for every service
// and collects the open slots the workers will fight over.
func (s *Simulator) loadSlots(ctx context.Context) error {
	var servicesEnv struct {
		Data []serviceItem `json:"data"`
	}
	if err := s.getJSON(ctx, "/api/services", &servicesEnv); err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	if len(servicesEnv.Data) == 0 {
		return fmt.Errorf("no services available")
	}

	for _, svc := range servicesEnv.Data {
		for d := 1; d <= s.config.DaysAhead; d++ {
			date := time.Now().AddDate(0, 0, d).Format("2006-01-02")

			var dayEnv struct {
				Data availabilityDay `json:"data"`
			}
			path := fmt.Sprintf("/api/booking/slots?date=%s&serviceId=%s", date, svc.ID)
			if err := s.getJSON(ctx, path, &dayEnv); err != nil {
				return fmt.Errorf("availability %s: %w", date, err)
			}

			for _, slot := range dayEnv.Data.Slots {
				if slot.Available {
					s.slots = append(s.slots, slotRef{
						ServiceID: svc.ID,
						Date:      date,
						StartTime: slot.StartTime,
					})
				}
			}
		}
	}

	if len(s.slots) == 0 {
		return fmt.Errorf("no open slots found")
	}
	return nil
}

func (s *Simulator) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < 0.7 {
				s.doBooking(ctx, rng)
			} else {
				s.doAvailabilityRead(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	slot := s.slots[rng.Intn(len(s.slots))]

	reqBody := map[string]string{
		"serviceId":    slot.ServiceID,
		"date":         slot.Date,
		"startTime":    slot.StartTime,
		"patientName":  fmt.Sprintf("Paciente Simulado %d", rng.Intn(100000)),
		"patientRut":   randomRUT(rng),
		"patientEmail": fmt.Sprintf("sim-%d@example.com", rng.Intn(1000000)),
		"patientPhone": "+56900000000",
	}
	body, _ := json.Marshal(reqBody)

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.APIBaseURL+"/api/booking/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusCreated
		conflict = resp.StatusCode == http.StatusConflict
	}

	s.booking.Record(latency, success, conflict)
}

func (s *Simulator) doAvailabilityRead(ctx context.Context, rng *rand.Rand) {
	slot := s.slots[rng.Intn(len(s.slots))]

	start := time.Now()
	path := fmt.Sprintf("%s/api/booking/slots?date=%s&serviceId=%s",
		s.config.APIBaseURL, slot.Date, slot.ServiceID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.reads.Record(latency, success, false)
}

// randomRUT builds a syntactically valid Chilean RUT with a correct check
// digit so requests pass input validation.
func randomRUT(rng *rand.Rand) string {
	body := 10000000 + rng.Intn(15000000)

	sum := 0
	factor := 2
	for n := body; n > 0; n /= 10 {
		sum += (n % 10) * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}

	var check string
	switch rest := 11 - sum%11; rest {
	case 11:
		check = "0"
	case 10:
		check = "K"
	default:
		check = strconv.Itoa(rest)
	}

	return fmt.Sprintf("%d-%s", body, check)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Slots targeted: %d\n", len(s.slots))
	fmt.Println()

	printOperationReport("Booking", &s.booking)
	printOperationReport("Availability read", &s.reads)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failures := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failures > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failures, float64(failures)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
