// dropsim serves a simulated drop-logger device for development: the same
// HTTP surface the real firmware exposes, backed by an in-memory log.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dropctl/internal/devicesim"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	seedRecords := flag.Int("records", 300, "Historical records to pre-seed")
	seed := flag.Int64("seed", 42, "Generator seed")
	tick := flag.Duration("tick", time.Second, "Record interval while a mission runs")
	flag.Parse()

	srv := devicesim.New(*seed)
	srv.Seed(*seedRecords)

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			srv.Tick()
		}
	}()

	httpSrv := &http.Server{Addr: *addr, Handler: srv.Handler()}
	go func() {
		log.Printf("[dropsim] device simulator listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("device simulator failed: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	httpSrv.Close()
	log.Println("[dropsim] stopped.")
}
