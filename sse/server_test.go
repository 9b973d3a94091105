package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/websearch/ddg-mcp/search"
)

var _ = Describe("HTTP server", func() {
	var (
		stub   *stubSearcher
		server *httptest.Server
	)

	BeforeEach(func() {
		stub = &stubSearcher{}
		server = httptest.NewServer(NewServer(zerolog.Nop(), stub, "test-version").Routes())
	})

	AfterEach(func() {
		server.Close()
	})

	post := func(path, body string) (*http.Response, string) {
		resp, err := http.Post(server.URL+path, "application/json", bytes.NewBufferString(body))
		Expect(err).NotTo(HaveOccurred())
		raw, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		resp.Body.Close()
		return resp, string(raw)
	}

	Describe("POST /", func() {
		It("streams an enveloped result and a terminal done frame", func() {
			stub.hits = makeHits(5)
			resp, body := post("/", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"web_search","arguments":{"query":"test","max_results":3}}}`)

			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))

			frames := parseSSE(body)
			Expect(frames).To(HaveLen(2))
			Expect(frames[0].Event).To(Equal(eventMessage))
			Expect(frames[0].Data["jsonrpc"]).To(Equal("2.0"))
			Expect(frames[0].Data["id"]).To(BeNumerically("==", 1))
			Expect(frames[1].Event).To(Equal(eventDone))
		})

		It("still emits done after an unknown method", func() {
			_, body := post("/", `{"jsonrpc":"2.0","id":9,"method":"bogus"}`)
			frames := parseSSE(body)
			Expect(frames).To(HaveLen(2))
			errObj := frames[0].Data["error"].(map[string]any)
			Expect(errObj["code"]).To(BeNumerically("==", codeMethodNotFound))
			Expect(frames[1].Event).To(Equal(eventDone))
		})

		It("answers malformed JSON with an error frame and done", func() {
			_, body := post("/", `{"method": `)
			frames := parseSSE(body)
			Expect(frames).To(HaveLen(2))
			Expect(frames[0].Event).To(Equal(eventError))
			Expect(frames[1].Event).To(Equal(eventDone))
		})

		It("streams a structured error result when search is unreachable", func() {
			stub.err = &net.OpError{Op: "dial", Err: errors.New("no route to host")}
			_, body := post("/", `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"web_search","arguments":{"query":"go"}}}`)

			frames := parseSSE(body)
			Expect(frames).To(HaveLen(2))
			result := frames[0].Data["result"].(map[string]any)
			Expect(result["isError"]).To(BeTrue())
			Expect(frames[1].Event).To(Equal(eventDone))
		})
	})

	Describe("POST /search", func() {
		It("returns raw structured hits", func() {
			stub.hits = []search.Result{{Title: "Go", URL: "https://go.dev", Snippet: "The language."}}
			resp, body := post("/search", `{"query":"golang","max_results":3}`)

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var out restSearchResponse
			Expect(json.Unmarshal([]byte(body), &out)).To(Succeed())
			Expect(out.Query).To(Equal("golang"))
			Expect(out.Results).To(HaveLen(1))
			Expect(out.Results[0].URL).To(Equal("https://go.dev"))
			Expect(stub.lastOpts.MaxResults).To(Equal(3))
		})

		It("rejects an empty query", func() {
			resp, _ := post("/search", `{"query":""}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(stub.calls).To(BeZero())
		})

		It("maps search failures to a bad gateway", func() {
			stub.err = errors.New("boom")
			resp, _ := post("/search", `{"query":"golang"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("operational endpoints", func() {
		It("reports health with the app version", func() {
			resp, err := http.Get(server.URL + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out["status"]).To(Equal("healthy"))
			Expect(out["version"]).To(Equal("test-version"))
		})

		It("reports readiness", func() {
			resp, err := http.Get(server.URL + "/ready")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("counts requests and searches", func() {
			stub.hits = makeHits(1)
			post("/", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"web_search","arguments":{"query":"go"}}}`)
			post("/search", `{"query":"go"}`)

			resp, err := http.Get(server.URL + "/metrics")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var out map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out["requests_total"]).To(BeNumerically("==", 2))
			Expect(out["searches_total"]).To(BeNumerically("==", 2))
		})
	})
})
