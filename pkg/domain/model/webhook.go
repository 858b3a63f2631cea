package model

// WebhookEventKind is the object_kind discriminator of a GitLab webhook body
type WebhookEventKind string

const (
	EventKindIssue        WebhookEventKind = "issue"
	EventKindMergeRequest WebhookEventKind = "merge_request"
	EventKindPipeline     WebhookEventKind = "pipeline"
	EventKindDeployment   WebhookEventKind = "deployment"
	EventKindRelease      WebhookEventKind = "release"
)

// IsSupported checks if notifications are produced for the kind
func (k WebhookEventKind) IsSupported() bool {
	switch k {
	case EventKindIssue, EventKindMergeRequest, EventKindPipeline, EventKindDeployment, EventKindRelease:
		return true
	default:
		return false
	}
}

// WebhookEvent is the subset of a GitLab webhook body used for notifications.
// Every field may be missing. Pointer fields distinguish "missing" from the
// zero value where GitLab can legitimately send the zero value.
//
// See https://docs.gitlab.com/ee/user/project/integrations/webhook_events.html
type WebhookEvent struct {
	ObjectKind       WebhookEventKind  `json:"object_kind,omitempty"`
	Project          *Project          `json:"project,omitempty"`
	User             *User             `json:"user,omitempty"`
	ObjectAttributes *ObjectAttributes `json:"object_attributes,omitempty"`
	Commit           *Commit           `json:"commit,omitempty"`
	MergeRequest     *MergeRequestRef  `json:"merge_request,omitempty"`

	// deployment events
	Status                 string `json:"status,omitempty"`
	Environment            string `json:"environment,omitempty"`
	EnvironmentExternalURL string `json:"environment_external_url,omitempty"`

	// release events
	Action string `json:"action,omitempty"`
	Tag    string `json:"tag,omitempty"`
	URL    string `json:"url,omitempty"`
}

type Project struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type User struct {
	Name string `json:"name,omitempty"`
}

// ObjectAttributes holds the issue, merge request or pipeline attributes
type ObjectAttributes struct {
	ID     *int64  `json:"id,omitempty"` // pipeline run number
	Title  *string `json:"title,omitempty"`
	URL    *string `json:"url,omitempty"`
	Action string  `json:"action,omitempty"` // issue and merge request
	Status string  `json:"status,omitempty"` // pipeline
	Ref    *string `json:"ref,omitempty"`
}

type Commit struct {
	Title string `json:"title,omitempty"`
}

// MergeRequestRef is the merge request a pipeline belongs to. GitLab sends
// null for branch pipelines; an empty object is handled the same way.
type MergeRequestRef struct {
	IID *int64 `json:"iid,omitempty"`
	URL string `json:"url,omitempty"`
}

// ProjectID returns the project id and whether it is present
func (e *WebhookEvent) ProjectID() (int64, bool) {
	if e.Project == nil || e.Project.ID == nil {
		return 0, false
	}
	return *e.Project.ID, true
}

// UserName returns the name of the acting user, or empty
func (e *WebhookEvent) UserName() string {
	if e.User == nil {
		return ""
	}
	return e.User.Name
}

// Ref returns the object_attributes ref, or empty
func (e *WebhookEvent) Ref() string {
	if e.ObjectAttributes == nil || e.ObjectAttributes.Ref == nil {
		return ""
	}
	return *e.ObjectAttributes.Ref
}

// HasMergeRequest reports whether the linked merge request has enough data to be referenced
func (e *WebhookEvent) HasMergeRequest() bool {
	return e.MergeRequest != nil && e.MergeRequest.IID != nil && e.MergeRequest.URL != ""
}
