package prompt

var builtinTemplates = map[string]string{
	"system.md":       systemTemplate,
	"roadmap.md":      roadmapTemplate,
	"alternatives.md": alternativesTemplate,
	"questions.md":    questionsTemplate,
	"score.md":        scoreTemplate,
	"feedback.md":     feedbackTemplate,
}

const systemTemplate = `You are a career guidance assistant for university students.
Answer with a single JSON value that matches the requested schema. No markdown, no explanations.`

const roadmapTemplate = `Create a learning roadmap for a student aiming to become a {{target_role}}.

STUDENT PROFILE:
{{profile}}
{{#if goal}}
STATED GOAL: {{goal}}
{{/if}}
{{#if readiness}}
READINESS: {{readiness}}
{{/if}}
{{#if market}}
MARKET CONTEXT: {{market}}
{{/if}}
{{#if adjustment}}
ADJUSTMENT REQUESTED: {{adjustment}}
{{/if}}

Requirements:
- Between {{min_steps}} and {{max_steps}} sequential steps, from foundations to job readiness
- Exactly {{actions_per_step}} concrete actions per step
- Every action has a measurable success criterion

Return JSON:
{
  "steps": [
    {
      "title": "Step title",
      "description": "What this step achieves",
      "actions": [
        {"title": "Action title", "description": "What to do", "success_criteria": "How completion is judged"}
      ]
    }
  ]
}`

const alternativesTemplate = `The student has deviated from their career path to {{target_role}}.

DEVIATION REASON: {{reason}}

STUDENT PROFILE:
{{profile}}
{{#if progress}}
PROGRESS SO FAR: {{progress}}
{{/if}}

Suggest two alternative career paths that build on the new direction, and one
adjusted version of the original path that accommodates the deviation.

Return JSON:
{
  "alternatives": [
    {
      "new_target_role": "Alternative role",
      "reason": "Why this alternative fits",
      "success_probability": 0.75,
      "timeline_months": 12,
      "brief_roadmap": "Step 1: ..., Step 2: ..."
    }
  ],
  "adjusted_original": {
    "original_target_role": "{{target_role}}",
    "adjustment": "How the original path changes",
    "success_probability": 0.6,
    "timeline_months": 15,
    "brief_roadmap": "Adjusted Step 1: ..., Adjusted Step 2: ..."
  }
}`

const questionsTemplate = `Generate exactly {{count}} questions that verify a student has truly completed this action.

ACTION: {{title}}
{{#if description}}
DESCRIPTION: {{description}}
{{/if}}
{{#if success_criteria}}
SUCCESS CRITERIA: {{success_criteria}}
{{/if}}

Questions must be short (one or two sentences), answerable only by someone who did
the work, and mix theory with practical application.

Return JSON:
[
  {"text": "Question?", "type": "conceptual"},
  {"text": "Question?", "type": "practical"}
]`

const scoreTemplate = `Evaluate whether the student completed this action, based on their answers.

ACTION: {{title}}
{{#if success_criteria}}
SUCCESS CRITERIA: {{success_criteria}}
{{/if}}

QUESTIONS AND ANSWERS:
{{qa}}

Score from 0.0 to 1.0:
- 0.0-0.3 incomplete or incorrect
- 0.4-0.6 partial understanding
- 0.7-1.0 strong understanding and completion

If the score is below 0.7, suggest one smaller follow-up action that would close the gap.

Return JSON:
{
  "relevance_score": 0.85,
  "feedback": "Brief feedback on the answers",
  "next_steps": "What to do next",
  "remedial_action": {"title": "Follow-up action", "description": "What to do", "success_criteria": "How it is judged"}
}`

const feedbackTemplate = `Review this student's progress toward becoming a {{target_role}}.

STUDENT PROFILE:
{{profile}}

ROADMAP PROGRESS:
{{progress}}

ACTION RESULTS:
{{actions}}
{{#if reroute}}
REROUTING: {{reroute}}
{{/if}}

Return JSON:
{
  "overall_progress_rating": "on_track | ahead | behind | at_risk",
  "velocity_assessment": "One sentence on pace",
  "strengths": ["..."],
  "concerns": ["..."],
  "recommendations": ["..."],
  "updated_confidence_score": 0.7,
  "updated_deviation_risk": "low | medium | high"
}`
