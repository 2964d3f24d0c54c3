package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// ErrUnknownQR means the name does not map to any link.
var ErrUnknownQR = errors.New("unknown qr code")

// QRTarget resolves a QR name to the URL it encodes.
func QRTarget(p *Portfolio, name string) (string, error) {
	switch name {
	case "github":
		if p.GitHub != "" {
			return p.GitHub, nil
		}
	case "linkedin":
		if p.LinkedIn != "" {
			return p.LinkedIn, nil
		}
	case "email":
		if p.Email != "" {
			return "mailto:" + p.Email, nil
		}
	default:
		if idx, ok := strings.CutPrefix(name, "app-"); ok {
			i, err := strconv.Atoi(idx)
			if err == nil && i >= 0 && i < len(p.LiveApps) && p.LiveApps[i].URL != "" {
				return p.LiveApps[i].URL, nil
			}
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownQR)
}

// ClampQRSize bounds a requested image size; 0 means the default.
func ClampQRSize(size int) int {
	switch {
	case size == 0:
		return defaultQRSize
	case size < minQRSize:
		return minQRSize
	case size > maxQRSize:
		return maxQRSize
	default:
		return size
	}
}

type qrKey struct {
	url  string
	size int
}

// QRCache encodes PNGs once per (url, size).
type QRCache struct {
	mu    sync.Mutex
	items map[qrKey][]byte
	// onEncode runs on every cache miss.
	onEncode func(name string)
}

func NewQRCache(onEncode func(name string)) *QRCache {
	return &QRCache{items: make(map[qrKey][]byte), onEncode: onEncode}
}

// PNG returns the QR code image for url. name only labels cache misses.
func (c *QRCache) PNG(name, url string, size int) ([]byte, error) {
	key := qrKey{url: url, size: ClampQRSize(size)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if png, ok := c.items[key]; ok {
		return png, nil
	}
	png, err := qrcode.Encode(url, qrcode.Medium, key.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	c.items[key] = png
	if c.onEncode != nil {
		c.onEncode(name)
	}
	return png, nil
}

// Len returns the number of cached images.
func (c *QRCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
