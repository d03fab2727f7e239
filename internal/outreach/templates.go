package outreach

import (
	"fmt"
	"strings"

	"github.com/jobpipe/jobpipe/internal/models"
)

// Templates renders the subject and body for one outreach email.
// Generated content is preferred; static fallbacks cover the case where
// no job description or model output is available.
type Templates struct {
	// SenderName signs every email
	SenderName string
}

// Render produces (subject, body) for a stage. content may be nil.
func (t *Templates) Render(stage models.Stage, recruiterName, company, jobURL string, content *models.EmailContent) (string, string) {
	subject := ""
	fragment := ""
	if content != nil {
		subject = content.Subject(stage)
		fragment = content.Body(stage)
	}
	if subject == "" {
		subject = fmt.Sprintf("%s – Software Engineer Interest", company)
	}

	name := firstName(recruiterName)

	var body string
	switch stage {
	case models.StageInitial:
		if fragment != "" {
			body = fmt.Sprintf(`Hi %s,

I recently came across this role at %s:
%s

%s

I would love the opportunity to discuss how I can contribute to your team.

I've attached my resume for your review.

Best,
%s`, name, company, jobURL, fragment, t.SenderName)
		} else {
			body = fmt.Sprintf(`Hi %s,

I hope you're doing well.

I'm a software engineer with experience building microservices-based backend systems, optimizing database performance, and running CI/CD pipelines on Kubernetes.

I'm particularly interested in backend and platform engineering opportunities at %s, and I would love to explore how I can contribute to your team.

I've attached my resume and would appreciate the opportunity to connect.

Best regards,
%s`, name, company, t.SenderName)
		}

	case models.StageFollowup1:
		if fragment != "" {
			body = fmt.Sprintf(`Hi %s,

%s

Please let me know if there's a good time to connect — I'd be happy to share more details about my experience.

Best,
%s`, name, fragment, t.SenderName)
		} else {
			body = fmt.Sprintf(`Hi %s,

I wanted to briefly follow up on my previous message regarding backend opportunities at %s.

With hands-on experience in microservices architecture, Kubernetes deployments, and CI/CD automation, I'm confident I could add value to teams focused on scalable backend systems.

Please let me know if there's a good time to connect — I'd be happy to share more details about my experience.

Best regards,
%s`, name, company, t.SenderName)
		}

	case models.StageFollowup2:
		if fragment != "" {
			body = fmt.Sprintf(`Hi %s,

%s

Regards,
%s`, name, fragment, t.SenderName)
		} else {
			body = fmt.Sprintf(`Hi %s,

Just checking in one last time regarding potential backend or software engineering roles at %s.

If there's someone else on your team I should reach out to, I'd greatly appreciate your guidance.

Thank you for your time,
%s`, name, company, t.SenderName)
		}

	default:
		return "", ""
	}

	return subject, body
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
