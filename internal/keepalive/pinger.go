// Package keepalive периодически дергает публичный URL приложения, чтобы
// хостинг не усыплял инстанс между запросами.
package keepalive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultPingTimeout = 30 * time.Second

type Pinger struct {
	url        string
	interval   time.Duration
	httpClient *http.Client
	l          *logrus.Entry
}

func New(url string, interval time.Duration, l *logrus.Logger) *Pinger {
	return &Pinger{
		url:        url,
		interval:   interval,
		httpClient: &http.Client{Timeout: defaultPingTimeout},
		l: l.WithFields(logrus.Fields{
			"component": "keepalive",
			"url":       url,
		}),
	}
}

// Run пингует URL с заданным интервалом до отмены контекста. Ошибки пинга
// только логируются: следующая итерация попробует снова.
func (p *Pinger) Run(ctx context.Context) {
	p.l.WithField("interval", p.interval).Info("Starting")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.l.Info("Got stop signal, exiting...")
			return
		case <-ticker.C:
			if err := p.ping(ctx); err != nil {
				p.l.WithError(err).Error("ping failed")
			}
		}
	}
}

func (p *Pinger) ping(ctx context.Context) error {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if reqErr != nil {
		return fmt.Errorf("building ping request: %w", reqErr)
	}

	resp, respErr := p.httpClient.Do(req)
	if respErr != nil {
		return fmt.Errorf("pinging %s: %w", p.url, respErr)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("pinging %s: unexpected status %d", p.url, resp.StatusCode)
	}

	p.l.WithField("status", resp.StatusCode).Debug("ping ok")
	return nil
}
