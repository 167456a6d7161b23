package patient

// Fallback structures substituted when a clinical category blob is absent,
// empty, or does not match its expected shape. A missing category is never
// fatal.

func DefaultPrescreening() Prescreening {
	return Prescreening{
		"riwayat_penyakit_sendiri":  {{"a. Riwayat Penyakit", "Tidak Ada"}},
		"riwayat_penyakit_keluarga": {{"a. Riwayat Penyakit", "Tidak Ada"}},
		"kebiasaan":                 {{"a. Kebiasaan", "Tidak Ada"}},
	}
}

func DefaultLabExam() LabExam {
	return LabExam{
		Header:   LabHeader{"nama": "-", "no_rm": "-"},
		Sections: nil,
	}
}

func DefaultConclusions() []Pair {
	return []Pair{
		{"Tanda Vital", "-"},
		{"Pemeriksaan Fisik", "-"},
	}
}

var defaultStudies = map[StudyType]Study{
	StudyRontgen: {
		Type:       StudyRontgen,
		Title:      "HASIL PEMERIKSAAN RADIOLOGI",
		Subtitle:   "THORAX FOTO",
		Hasil:      "Tidak ada data",
		Kesimpulan: "Tidak ada data",
		Dokter:     Examiner{Name: "-", Title: "Dokter Pemeriksa"},
		URL:        "-",
	},
	StudyEKG: {
		Type:       StudyEKG,
		Title:      "Pemeriksaan Elektrokardiografi (EKG)",
		Subtitle:   "Hasil Perekaman Aktivitas Listrik Jantung",
		Hasil:      "Tidak ada data",
		Kesimpulan: "Tidak ada data",
		Dokter:     Examiner{Name: "-", Title: "Dokter Pemeriksa"},
		URL:        "-",
	},
	StudySpirometri: {
		Type:       StudySpirometri,
		Title:      "Pemeriksaan Fungsi Paru - Spirometri",
		Subtitle:   "Hasil Pengukuran Kapasitas dan Aliran Udara Paru",
		Hasil:      "Tidak ada data",
		Kesimpulan: "Tidak ada data",
		Dokter:     Examiner{Name: "-", Title: "Dokter Pemeriksa"},
		URL:        "-",
	},
	StudyTreadmill: {
		Type:       StudyTreadmill,
		Title:      "Pemeriksaan Treadmill Test",
		Subtitle:   "Hasil Uji Toleransi Jantung terhadap Stres",
		Hasil:      "Tidak ada data",
		Kesimpulan: "Tidak ada data",
		Dokter:     Examiner{Name: "-", Title: "Dokter Pemeriksa"},
		URL:        "-",
	},
	StudyUSGAbdomen: {
		Type:       StudyUSGAbdomen,
		Title:      "Pemeriksaan Ultrasonografi - Abdomen",
		Subtitle:   "Hasil Pemindaian USG pada Organ Abdomen",
		Hasil:      "Tidak ada data",
		Kesimpulan: "Tidak ada data",
		Dokter:     Examiner{Name: "-", Title: "Dokter Pemeriksa"},
		URL:        "-",
	},
	StudyUSGMammae: {
		Type:       StudyUSGMammae,
		Title:      "Pemeriksaan Ultrasonografi - Mammae",
		Subtitle:   "Hasil Pemindaian USG pada Jaringan Payudara",
		Hasil:      "Tidak ada data",
		Kesimpulan: "Tidak ada data",
		Dokter:     Examiner{Name: "-", Title: "Dokter Pemeriksa"},
		URL:        "-",
	},
}

// DefaultStudy returns the fallback record for a study type. The result is a
// copy; callers may mutate it.
func DefaultStudy(t StudyType) *Study {
	s, ok := defaultStudies[t]
	if !ok {
		return nil
	}
	return &s
}

func DefaultAudiometry() *Audiometry {
	return &Audiometry{Diagnosis: []Pair{{"Tidak ada data", "Tidak ada data"}}}
}
