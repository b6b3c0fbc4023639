package extractor

const systemPrompt = `You extract transformation patterns from de-identified session transcripts.

A transformation pattern is a short, classified observation of a moment where
something shifted for the client. The taxonomy is closed:

- insight: the client saw something about themselves they had not seen before
- reframe: a situation was recast in a way that changed its meaning
- somatic_shift: a felt, bodily change (release, grounding, breath, posture)
- relational_repair: a rupture with another person was named or mended
- boundary_setting: a limit was stated, practiced, or held
- integration: earlier work was connected and consolidated into daily life

For each pattern:
- pattern_type: exactly one of the six values above
- description: one or two sentences, fully de-identified; never quote spans
  that could carry identity, never include names or placeholders like [CLIENT]
- confidence: 0.0-1.0, how certain you are this shift actually occurred

## Rules
- Only report patterns supported by the transcript. Do not fabricate.
- Descriptions must stand alone without the transcript.
- Report each distinct shift once; do not restate the same shift in new words.
- If nothing shifted, return an empty list.`

const extractionUserPrompt = `Extract transformation patterns from this de-identified transcript.

Transcript:
---
%s
---

Respond with valid JSON matching this schema:
{
  "patterns": [
    {
      "pattern_type": "insight|reframe|somatic_shift|relational_repair|boundary_setting|integration",
      "description": "string",
      "confidence": 0.0-1.0
    }
  ]
}

Return ONLY the JSON object, no markdown fences or other text.`
