// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scoring

import "regexp"

// Medical-vocabulary whitelists. A NAME span whose text matches one of
// these is penalized because it is far more likely to be clinical
// vocabulary than a person. Checked in strict priority order; the first
// match wins and later lists are not consulted.

// diseaseEponyms are matched exactly against the lowercased span text.
var diseaseEponyms = map[string]bool{
	"parkinson": true, "parkinson's": true, "parkinsons": true,
	"alzheimer": true, "alzheimer's": true, "alzheimers": true,
	"hodgkin": true, "hodgkin's": true, "hodgkins": true,
	"crohn": true, "crohn's": true, "crohns": true,
	"addison": true, "addison's": true, "addisons": true,
	"cushing": true, "cushing's": true, "cushings": true,
	"graves": true, "graves'": true,
	"hashimoto": true, "hashimoto's": true, "hashimotos": true,
	"bell": true, "bell's": true, "bells palsy": true,
	"raynaud": true, "raynaud's": true, "raynauds": true,
	"meniere": true, "meniere's": true, "menieres": true,
	"tourette": true, "tourette's": true, "tourettes": true,
	"wilson": true, "wilson's": true, "wilsons disease": true,
	"huntington": true, "huntington's": true, "huntingtons": true,
	"marfan": true, "marfan's": true, "marfans": true,
	"sjogren": true, "sjogren's": true, "sjogrens": true,
	"guillain": true, "guillain-barre": true, "guillain barre": true,
	"kaposi": true, "kaposi's": true, "kaposis": true,
	"kawasaki": true,
	"paget":    true, "paget's": true, "pagets": true,
}

// diseaseNames are matched as substrings of the span text.
var diseaseNames = []string{
	"diabetes", "hypertension", "cancer", "leukemia", "lymphoma",
	"pneumonia", "bronchitis", "asthma", "copd", "emphysema",
	"arthritis", "osteoporosis", "fibromyalgia", "depression",
	"anxiety", "schizophrenia", "bipolar", "hepatitis", "cirrhosis",
	"pancreatitis", "stroke", "aneurysm", "thrombosis", "embolism",
	"carcinoma", "melanoma", "sarcoma", "tumor", "infection",
	"sepsis", "abscess", "fracture", "dislocation", "sprain",
	"anemia", "thrombocytopenia", "neutropenia", "dementia",
	"neuropathy", "myopathy", "colitis", "gastritis", "esophagitis",
	"nephritis", "cystitis", "pyelonephritis", "dermatitis",
	"eczema", "psoriasis", "sinusitis", "otitis", "conjunctivitis",
}

var medications = []string{
	"lisinopril", "metformin", "amlodipine", "metoprolol",
	"omeprazole", "simvastatin", "losartan", "gabapentin",
	"hydrochlorothiazide", "atorvastatin", "levothyroxine",
	"prednisone", "amoxicillin", "azithromycin", "alprazolam",
	"tramadol", "furosemide", "pantoprazole", "escitalopram",
	"sertraline", "fluoxetine", "trazodone", "clopidogrel",
	"warfarin", "aspirin", "ibuprofen", "acetaminophen", "naproxen",
	"oxycodone", "morphine", "fentanyl", "insulin", "methotrexate",
	"prolia", "humira", "enbrel", "xarelto", "eliquis", "pradaxa",
	"coumadin", "lipitor", "crestor", "zocor", "pravachol",
	"norvasc", "cardizem", "procardia", "lasix", "bumex",
	"aldactone", "zoloft", "prozac", "lexapro", "celexa", "paxil",
	"xanax", "ativan", "valium", "klonopin", "ambien", "lunesta",
	"sonata",
}

var procedures = []string{
	"ct scan", "ct", "mri", "x-ray", "xray", "ultrasound",
	"echocardiogram", "ekg", "ecg", "eeg", "colonoscopy",
	"endoscopy", "bronchoscopy", "laparoscopy", "biopsy", "surgery",
	"operation", "procedure", "catheterization", "angiogram",
	"angioplasty", "dialysis", "chemotherapy", "radiation",
	"immunotherapy", "physical therapy", "occupational therapy",
	"speech therapy", "mammogram", "pap smear", "bone scan",
	"pet scan", "injection", "infusion", "transfusion",
}

// anatomicalTerms are matched exactly against the lowercased span text.
var anatomicalTerms = map[string]bool{
	"abdomen": true, "pelvis": true, "thorax": true, "chest": true,
	"head": true, "neck": true, "liver": true, "kidney": true,
	"spleen": true, "pancreas": true, "gallbladder": true,
	"heart": true, "lung": true, "brain": true, "spine": true,
	"colon": true, "stomach": true, "intestine": true,
	"bladder": true, "prostate": true, "uterus": true, "ovary": true,
	"breast": true, "thyroid": true, "artery": true, "vein": true,
	"nerve": true, "muscle": true, "bone": true, "joint": true,
	"skin": true, "tissue": true, "membrane": true, "cartilage": true,
}

var sectionHeaders = []string{
	"assessment", "plan", "diagnosis", "history", "examination",
	"medications", "allergies", "vitals", "labs", "imaging",
	"chief complaint", "hpi", "ros", "physical exam", "impression",
	"recommendations", "follow-up", "subjective", "objective",
	"problem list",
}

var organizationTerms = []string{
	"hospital", "clinic", "medical center", "health center",
	"healthcare", "health system", "medical group", "pharmacy",
	"laboratory", "urgent care", "emergency room",
	"emergency department", "nursing home", "rehabilitation",
	"hospice",
}

// Context patterns evaluated against the span's surrounding window.
// Bonuses are independent; any subset can fire.
var (
	titleContextRe  = regexp.MustCompile(`(?i)\b(mr|mrs|ms|miss|dr|prof|professor|rev|hon)\b\.?\s*$`)
	familyTermsRe   = regexp.MustCompile(`(?i)\b(husband|wife|spouse|son|daughter|mother|father|parent|child|sibling|brother|sister|guardian)\b`)
	phiLabelsRe     = regexp.MustCompile(`(?i)\b(name|patient|dob|ssn|mrn|address|phone|email|contact)\s*[:=]`)
	clinicalRolesRe = regexp.MustCompile(`(?i)\b(performed by|verified by|signed by|reviewed by|attending|provider|physician|nurse|technician)\s*[:=]?\s*$`)
)

// highPrecisionTypes receive a fixed high base weight regardless of the
// originating pattern.
var highPrecisionTypes = map[string]bool{
	"SSN": true, "EMAIL": true, "PHONE": true, "FAX": true,
	"MRN": true, "NPI": true, "CREDIT_CARD": true, "ACCOUNT": true,
	"IP": true, "URL": true,
}
