package config

import (
	"reflect"
	"testing"
)

func TestGetEnvStringSlice(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected []string
	}{
		{
			name:     "Plain list",
			value:    "http://a.com,http://b.com",
			expected: []string{"http://a.com", "http://b.com"},
		},
		{
			name:     "Spaces around separators",
			value:    "http://a.com, http://b.com , http://c.com",
			expected: []string{"http://a.com", "http://b.com", "http://c.com"},
		},
		{
			name:     "Empty elements dropped",
			value:    "http://a.com,,http://b.com,",
			expected: []string{"http://a.com", "http://b.com"},
		},
		{
			name:     "Only separators falls back to default",
			value:    " , ",
			expected: []string{"default"},
		},
		{
			name:     "Unset falls back to default",
			value:    "",
			expected: []string{"default"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_STRING_SLICE", tc.value)

			got := getEnvStringSlice("TEST_STRING_SLICE", []string{"default"})
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	if got := getEnv("TEST_STRING", "default"); got != "value" {
		t.Errorf("Expected value, got %s", got)
	}
	if got := getEnv("TEST_STRING_MISSING", "default"); got != "default" {
		t.Errorf("Expected default, got %s", got)
	}

	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	t.Setenv("TEST_INT_BAD", "not a number")
	if got := getEnvInt("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("Expected default 7, got %d", got)
	}

	t.Setenv("TEST_BOOL", "false")
	if got := getEnvBool("TEST_BOOL", true); got {
		t.Error("Expected false")
	}
}
