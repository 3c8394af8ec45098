package env_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"curationsapi/src/helper/env"
)

var _ = Describe("env", func() {
	setenv := func(name string, value string) {
		GinkgoT().Setenv(name, value)
	}

	Describe("GetString", func() {
		It("falls back to the default only when unset or empty", func() {
			setenv("CURATIONS_TEST_STRING", "")
			Expect(env.GetString("CURATIONS_TEST_STRING", "fallback")).To(Equal("fallback"))

			setenv("CURATIONS_TEST_STRING", "value")
			Expect(env.GetString("CURATIONS_TEST_STRING", "fallback")).To(Equal("value"))
		})
	})

	Describe("MustGetString", func() {
		It("panics when the variable is empty", func() {
			setenv("CURATIONS_TEST_REQUIRED", "")
			Expect(func() { env.MustGetString("CURATIONS_TEST_REQUIRED") }).To(PanicWith("CURATIONS_TEST_REQUIRED can't be empty"))
		})
	})

	Describe("typed getters", func() {
		It("parse valid values and default invalid ones", func() {
			setenv("CURATIONS_TEST_INT", "42")
			setenv("CURATIONS_TEST_BAD_INT", "forty")
			setenv("CURATIONS_TEST_BOOL", "true")
			setenv("CURATIONS_TEST_DURATION", "1m30s")
			setenv("CURATIONS_TEST_BAD_DURATION", "soon")

			Expect(env.GetInt("CURATIONS_TEST_INT", 1)).To(Equal(42))
			Expect(env.GetInt("CURATIONS_TEST_BAD_INT", 7)).To(Equal(7))
			Expect(env.GetBool("CURATIONS_TEST_BOOL", false)).To(BeTrue())
			Expect(env.GetDuration("CURATIONS_TEST_DURATION", time.Second)).To(Equal(90 * time.Second))
			Expect(env.GetDuration("CURATIONS_TEST_BAD_DURATION", 10*time.Second)).To(Equal(10 * time.Second))
		})

		It("panics on a required non integer", func() {
			setenv("CURATIONS_TEST_BAD_INT", "x")
			Expect(func() { env.MustGetInt("CURATIONS_TEST_BAD_INT") }).To(Panic())
		})
	})

	Describe("GetStrings", func() {
		It("splits on commas and drops blanks", func() {
			setenv("CURATIONS_TEST_LIST", " https://a.org, ,https://b.org ")
			Expect(env.GetStrings("CURATIONS_TEST_LIST")).To(Equal([]string{"https://a.org", "https://b.org"}))
		})

		It("returns the defaults when unset", func() {
			setenv("CURATIONS_TEST_LIST", "")
			Expect(env.GetStrings("CURATIONS_TEST_LIST", "*")).To(Equal([]string{"*"}))
		})
	})

	Describe("LoadDotEnv", func() {
		It("loads files in order without overriding variables already set", func() {
			dir := GinkgoT().TempDir()
			first := filepath.Join(dir, ".env")
			second := filepath.Join(dir, ".env.local")
			Expect(os.WriteFile(first, []byte("CURATIONS_TEST_DOTENV=from-env\nCURATIONS_TEST_PRESET=from-file\n"), 0o600)).To(Succeed())
			Expect(os.WriteFile(second, []byte("CURATIONS_TEST_DOTENV=from-local\nCURATIONS_TEST_LOCAL=local\n"), 0o600)).To(Succeed())

			setenv("CURATIONS_TEST_PRESET", "preset")
			setenv("CURATIONS_TEST_DOTENV", "")
			os.Unsetenv("CURATIONS_TEST_DOTENV")
			setenv("CURATIONS_TEST_LOCAL", "")
			os.Unsetenv("CURATIONS_TEST_LOCAL")

			env.LoadDotEnv(first, second, filepath.Join(dir, "missing.env"))

			Expect(os.Getenv("CURATIONS_TEST_DOTENV")).To(Equal("from-env"))
			Expect(os.Getenv("CURATIONS_TEST_LOCAL")).To(Equal("local"))
			Expect(os.Getenv("CURATIONS_TEST_PRESET")).To(Equal("preset"))
		})
	})
})
