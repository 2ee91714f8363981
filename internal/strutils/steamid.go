package strutils

import (
	"fmt"
	"strings"
)

// Every individual account id lives above 76561197960265728
const STEAM_ID_PREFIX = "765611"

const STEAM_ID_LENGTH = 17

// Trims surrounding whitespace and validates the Steam ID64 format
func NormalizeSteamID(steamID string) (string, error) {
	normalized := strings.TrimSpace(steamID)

	if len(normalized) != STEAM_ID_LENGTH {
		return "", fmt.Errorf("steam id has incorrect length. input: '%s'", steamID)
	}

	for _, char := range normalized {
		if char < '0' || char > '9' {
			return "", fmt.Errorf("invalid character in steam id. input: '%s'", steamID)
		}
	}

	if !strings.HasPrefix(normalized, STEAM_ID_PREFIX) {
		return "", fmt.Errorf("steam id is not an individual account id. input: '%s'", steamID)
	}

	return normalized, nil
}

func SteamIDIsNormalized(steamID string) bool {
	normalized, err := NormalizeSteamID(steamID)
	if err != nil {
		return false
	}
	return normalized == steamID
}
