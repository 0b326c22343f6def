package publishers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigsEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	enabled := Enabled(cfgs)
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
	if enabled[0].HTTP.Method != "POST" || enabled[0].HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", enabled[0].HTTP)
	}
}

func TestValidateRejectsMissingHTTP(t *testing.T) {
	err := PublisherConfig{ID: "h1", Type: TypeHTTP}.validate()
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadConfigsParsesCloudSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers": [
  {"id": "queue", "type": "SQS", "sqs": {"uri": " https://sqs.example/q ", "region": "us-east-1"}},
  {"id": "topic", "type": "sns", "sns": {"topic_arn": "arn:aws:sns:us-east-1:1:t", "region": "us-east-1", "access_key_id": "AK", "secret_access_key": "SK"}},
  {"id": "gcp", "type": "gcp_pubsub", "gcp_pubsub": {"project_id": "p", "topic": "fresh"}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfgs, err := LoadConfigs(path)
	if err != nil {
		t.Fatalf("LoadConfigs: %v", err)
	}
	queue := cfgs[0]
	if queue.Type != TypeSQS || queue.SQS.QueueURL != "https://sqs.example/q" || queue.SQS.Region != "us-east-1" {
		t.Fatalf("unexpected sqs config %#v", queue.SQS)
	}
	topic := cfgs[1]
	if topic.SNS.AccessKeyID != "AK" || topic.SNS.TopicARN == "" {
		t.Fatalf("unexpected sns config %#v", topic.SNS)
	}
	if len(Enabled(cfgs)) != 3 {
		t.Fatalf("expected all sinks enabled by default")
	}
}

func TestValidateRejectsIncompleteSinks(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{AWSConfig: AWSConfig{Region: "r"}}},
		{ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "p"}},
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "u"}},
		{ID: "k", Type: "kafka"},
	}
	for _, cfg := range cases {
		if err := cfg.validate(); err == nil {
			t.Errorf("expected validation error for %s", cfg.ID)
		}
	}
}

func TestLoadConfigsRejectsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yml")
	raw := `
publishers:
  - id: hook
    type: http
    http: {url: https://example.com/a}
  - id: " hook "
    type: http
    http: {url: https://example.com/b}
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadConfigs(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
