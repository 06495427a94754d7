package autofill

import "strings"

// PromptTemplate is a canned instruction offered for the extracted content.
type PromptTemplate struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Prompt      string `json:"prompt"`
}

var promptTemplates = []PromptTemplate{
	{
		ID:          "summary_5_points",
		Label:       "Ringkasan 5 Poin",
		Description: "Ringkas, cepat dibaca, dan fokus inti pembahasan.",
		Icon:        "list",
		Prompt:      "Tolong ringkas teks berikut dalam 5 poin utama yang sangat jelas, padat, dan mudah dipahami.",
	},
	{
		ID:          "deep_explainer",
		Label:       "Penjelasan Mendalam",
		Description: "Jelaskan menyeluruh tanpa kehilangan konteks.",
		Icon:        "book",
		Prompt:      "Jelaskan materi berikut secara lengkap, runtut, dan mendalam tanpa kehilangan konteks penting.",
	},
	{
		ID:          "structured_breakdown",
		Label:       "Uraian Terstruktur",
		Description: "Pecah topik menjadi bagian-bagian sistematis.",
		Icon:        "layers",
		Prompt:      "Uraikan isi teks menjadi bagian terstruktur: latar belakang, inti pembahasan, detail penting, dan kesimpulan.",
	},
	{
		ID:          "practical_insights",
		Label:       "Insight Praktis",
		Description: "Fokus tindakan nyata dan poin implementasi.",
		Icon:        "lightbulb",
		Prompt:      "Ambil insight paling praktis dari teks berikut, lalu jelaskan langkah penerapannya secara konkret.",
	},
}

// PromptTemplates returns the templates in display order.
func PromptTemplates() []PromptTemplate {
	return append([]PromptTemplate(nil), promptTemplates...)
}

// TemplateByID returns the template with id, or the first one.
func TemplateByID(id string) PromptTemplate {
	for _, t := range promptTemplates {
		if t.ID == id {
			return t
		}
	}
	return promptTemplates[0]
}

// SourceMeta describes where analysed content came from.
type SourceMeta struct {
	Title    string
	URL      string
	SiteName string
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// BuildPromptWithContext wraps instruction and content in the sectioned
// prompt sent to the assistant.
func BuildPromptWithContext(instruction, content string, meta SourceMeta) string {
	return strings.Join([]string{
		"INSTRUKSI UTAMA:",
		strings.TrimSpace(instruction),
		"",
		"ATURAN OUTPUT:",
		"1. Gunakan bahasa Indonesia yang jelas dan runtut.",
		"2. Jelaskan lengkap, tapi tetap ringkas dan langsung ke inti.",
		"3. Jangan hilangkan konteks penting dari sumber.",
		"4. Jika ada istilah teknis, jelaskan secara sederhana.",
		"",
		"KONTEKS SUMBER:",
		"- Judul: " + orDash(meta.Title),
		"- Website: " + orDash(meta.SiteName),
		"- URL: " + orDash(meta.URL),
		"",
		"KONTEN YANG HARUS DIANALISIS:",
		strings.TrimSpace(content),
	}, "\n")
}
