package utils

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// IsNumericID checks if a string is a plain non-negative integer id
// (the internal edition numbers used by the desktop front-end).
func IsNumericID(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

// IsLauncherID checks if a string looks like a Chia launcher id:
// an optional "0x" prefix followed by 64 hex characters.
func IsLauncherID(s string) bool {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsEncodedNFTID checks for a bech32m-encoded NFT id ("nft1...").
func IsEncodedNFTID(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "nft1") && len(s) > 10
}
