package fixtures

import (
	"strings"

	"golang.org/x/xerrors"
)

// ReadFile reads a fixture relative to this package, e.g. "server/getBlockHeight.json".
func ReadFile(pathToFile string) ([]byte, error) {
	data, err := FixturesFS.ReadFile(pathToFile)
	if err != nil {
		return nil, xerrors.Errorf("failed to read fixture %v: %w", pathToFile, err)
	}

	return data, nil
}

func MustReadFile(pathToFile string) []byte {
	data, err := ReadFile(pathToFile)
	if err != nil {
		panic(err)
	}

	return data
}

// ReadString returns the fixture without surrounding whitespace, ready to be posted as a request body.
func ReadString(pathToFile string) (string, error) {
	data, err := ReadFile(pathToFile)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

func MustReadString(pathToFile string) string {
	data, err := ReadString(pathToFile)
	if err != nil {
		panic(err)
	}

	return data
}
